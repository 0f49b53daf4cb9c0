package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gowvp/vigil/pkg/vds"
)

// predictionRe 分段响应行文法: `[<interval>] score : <float> Etat : <state>`
var predictionRe = regexp.MustCompile(`^\[([^\]]*)\]\s*score\s*:\s*([0-9.eE+-]+)\s*Etat\s*:\s*(.+?)\s*$`)

// negations 状态标签中的否定词，出现则判定为非暴力
// 原始服务返回 "Violence détectée" / "Aucune violence détectée"，
// 单纯包含匹配会把否定句也判成暴力
var negations = []string{"aucune", "no ", "non ", "pas de", "sans "}

// Normalize 将模型相关的原始响应转成规范化结果
// resolve 把服务端相对路径解析为完整地址，可为 nil
func Normalize(resp *vds.PredictResponse, resolve func(string) string) (*Result, error) {
	switch {
	case resp.TwoStream != nil:
		return normalizeTwoStream(resp, resolve)
	case resp.SingleShot != nil:
		return normalizeSingleShot(resp)
	}
	return nil, fmt.Errorf("%w: empty response", vds.ErrMalformedResponse)
}

// normalizeTwoStream 逐行解析分段响应
// 不匹配文法的行记告警后跳过，一行坏数据不拖垮整批；全部失败才报错
func normalizeTwoStream(resp *vds.PredictResponse, resolve func(string) string) (*Result, error) {
	ts := resp.TwoStream
	out := Result{
		SourceLabel: ts.Filename,
		Model:       string(resp.Model),
		Intervals:   make(Intervals, 0, len(ts.Predictions)),
	}

	for _, line := range ts.Predictions {
		iv, err := parsePrediction(line)
		if err != nil {
			slog.Warn("skip malformed prediction", "line", line, "err", err)
			continue
		}
		out.Intervals = append(out.Intervals, iv)
		if iv.IsViolent {
			out.Violent = true
		}
	}

	if len(out.Intervals) == 0 {
		return nil, fmt.Errorf("%w: no valid prediction lines", vds.ErrMalformedResponse)
	}

	if ts.AnnotatedVideoPath != "" {
		if resolve != nil {
			out.AnnotatedURL = resolve(ts.AnnotatedVideoPath)
		} else {
			out.AnnotatedURL = ts.AnnotatedVideoPath
		}
	}
	return &out, nil
}

// normalizeSingleShot 单值响应恰好产出一个区间，区间标签留空
func normalizeSingleShot(resp *vds.PredictResponse) (*Result, error) {
	ss := resp.SingleShot
	return &Result{
		SourceLabel: ss.Filename,
		Model:       string(resp.Model),
		Intervals: Intervals{{
			Probability: ss.Probability,
			Confidence:  roundPercent(ss.Probability),
			IsViolent:   ss.IsViolent,
		}},
		Violent: ss.IsViolent,
	}, nil
}

// parsePrediction 解析单行预测
func parsePrediction(line string) (Interval, error) {
	m := predictionRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Interval{}, fmt.Errorf("line does not match grammar")
	}

	prob, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Interval{}, fmt.Errorf("parse score: %w", err)
	}
	if prob < 0 || prob > 1 {
		return Interval{}, fmt.Errorf("score %v out of range", prob)
	}

	return Interval{
		StartLabel:  m[1],
		Probability: prob,
		Confidence:  roundPercent(prob),
		IsViolent:   isViolentState(m[3]),
	}, nil
}

// isViolentState 状态标签是否表示暴力类别
// 大小写不敏感的包含匹配以容忍标签差异，但要排除否定表述
func isViolentState(state string) bool {
	s := strings.ToLower(state)
	if !strings.Contains(s, "violen") {
		return false
	}
	for _, neg := range negations {
		if strings.Contains(s, neg) {
			return false
		}
	}
	return true
}

// roundPercent 概率转百分比，保留一位小数
func roundPercent(p float64) float64 {
	return math.Round(p*1000) / 10
}
