package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Bootstrap 全局配置
type Bootstrap struct {
	BuildVersion string `toml:"-"` // 编译时注入的版本号
	Debug        bool   `toml:"debug"`

	Server   Server   `toml:"server"`
	Data     Data     `toml:"data"`
	Detect   Detect   `toml:"detect"`
	Monitor  Monitor  `toml:"monitor"`
	Artifact Artifact `toml:"artifact"`
}

type Server struct {
	HTTP HTTP `toml:"http"`
}

type HTTP struct {
	Port int `toml:"port"` // HTTP 服务端口
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	Dsn             string   `toml:"dsn"`               // 数据库连接串，默认 sqlite 文件
	MaxIdleConns    int32    `toml:"max_idle_conns"`    // 最大空闲连接数
	MaxOpenConns    int32    `toml:"max_open_conns"`    // 最大打开连接数
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"` // 连接最大存活时间
	SlowThreshold   Duration `toml:"slow_threshold"`    // 慢查询阈值
}

// Detect 远端暴力检测服务配置
type Detect struct {
	Addr    string   `toml:"addr"`    // 检测服务地址，如 http://127.0.0.1:8000
	Model   string   `toml:"model"`   // 默认模型: i3d_two_streams / i3d / cnn_lstm
	Timeout Duration `toml:"timeout"` // 单次推理请求超时
}

// Monitor 实时监控配置
// 周期 Period 必须大于录制时长 Record，保证相邻两次录制不重叠
type Monitor struct {
	Source   string   `toml:"source"`    // 采集源，设备路径或 RTSP 地址
	Period   Duration `toml:"period"`    // 采集周期 P
	Record   Duration `toml:"record"`    // 单段录制时长 R
	Dwell    Duration `toml:"dwell"`     // 告警驻留时间
	MimeType string   `toml:"mime_type"` // 片段封装格式
}

// Artifact 标注视频下载配置
type Artifact struct {
	Dir       string `toml:"dir"`         // 下载文件保存目录
	RetainDay int    `toml:"retain_days"` // 分析结果保留天数，0 表示不清理
}

// Duration 支持 toml 中 "6s" 这类写法
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

const defaultFileName = "config.toml"

// SetupConfig 读取并校验配置文件
// 文件不存在时写出一份默认配置再加载，方便首次部署
func SetupConfig(dir string) (*Bootstrap, error) {
	path := filepath.Join(dir, defaultFileName)

	c := defaultBootstrap()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := writeDefault(path, c); err != nil {
			return nil, err
		}
	} else if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func defaultBootstrap() *Bootstrap {
	return &Bootstrap{
		Server: Server{HTTP: HTTP{Port: 8090}},
		Data: Data{Database: Database{
			Dsn:             "vigil.db",
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: Duration(6 * time.Hour),
			SlowThreshold:   Duration(200 * time.Millisecond),
		}},
		Detect: Detect{
			Addr:    "http://127.0.0.1:8000",
			Model:   "i3d_two_streams",
			Timeout: Duration(30 * time.Second),
		},
		Monitor: Monitor{
			Source:   "/dev/video0",
			Period:   Duration(6 * time.Second),
			Record:   Duration(5 * time.Second),
			Dwell:    Duration(5 * time.Second),
			MimeType: "video/mp4",
		},
		Artifact: Artifact{Dir: "artifacts", RetainDay: 30},
	}
}

func (c *Bootstrap) applyDefaults() {
	d := defaultBootstrap()
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = d.Server.HTTP.Port
	}
	if c.Data.Database.Dsn == "" {
		c.Data.Database.Dsn = d.Data.Database.Dsn
	}
	if c.Detect.Addr == "" {
		c.Detect.Addr = d.Detect.Addr
	}
	if c.Detect.Model == "" {
		c.Detect.Model = d.Detect.Model
	}
	if c.Detect.Timeout == 0 {
		c.Detect.Timeout = d.Detect.Timeout
	}
	if c.Monitor.Period == 0 {
		c.Monitor.Period = d.Monitor.Period
	}
	if c.Monitor.Record == 0 {
		c.Monitor.Record = d.Monitor.Record
	}
	if c.Monitor.Dwell == 0 {
		c.Monitor.Dwell = d.Monitor.Dwell
	}
	if c.Monitor.MimeType == "" {
		c.Monitor.MimeType = d.Monitor.MimeType
	}
	if c.Artifact.Dir == "" {
		c.Artifact.Dir = d.Artifact.Dir
	}
}

// Validate 校验时序约束
// P > R 保证录制不重叠，驻留时间必须为正
func (c *Bootstrap) Validate() error {
	if c.Monitor.Period.Duration() <= c.Monitor.Record.Duration() {
		return fmt.Errorf("monitor.period(%s) 必须大于 monitor.record(%s)",
			c.Monitor.Period.Duration(), c.Monitor.Record.Duration())
	}
	if c.Monitor.Dwell.Duration() <= 0 {
		return fmt.Errorf("monitor.dwell 必须大于 0")
	}
	return nil
}

func writeDefault(path string, c *Bootstrap) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
