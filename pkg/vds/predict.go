package vds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const (
	predictPath   = "/predict"
	annotatedPath = "/annotated_videos/"

	fieldFile  = "file"
	fieldModel = "model"
)

// Model 模型选择器，决定响应结构
type Model string

const (
	ModelTwoStream Model = "i3d_two_streams" // 双流时空模型，分段响应
	ModelI3D       Model = "i3d"             // 单流时空模型，单值响应
	ModelCNNLSTM   Model = "cnn_lstm"        // 循环卷积模型，单值响应
)

func (m Model) Valid() bool {
	switch m {
	case ModelTwoStream, ModelI3D, ModelCNNLSTM:
		return true
	}
	return false
}

// SingleShot 是否为单值响应族
func (m Model) SingleShot() bool { return m == ModelI3D || m == ModelCNNLSTM }

// TwoStreamResult 分段响应族
// Predictions 的每一行符合 `[<interval>] score : <float> Etat : <state>` 文法
type TwoStreamResult struct {
	Filename           string   `json:"filename"`
	Predictions        []string `json:"predictions"`
	AnnotatedVideoPath string   `json:"annotated_video_path"` // 服务端相对路径，可能为空
}

// SingleShotResult 单值响应族
type SingleShotResult struct {
	Filename    string  `json:"filename"`
	Probability float64 `json:"probability"` // 0.0 - 1.0
	IsViolent   bool    `json:"is_violent"`
}

// PredictResponse 按模型打标的联合响应，两个分支有且仅有一个非空
type PredictResponse struct {
	Model      Model
	TwoStream  *TwoStreamResult
	SingleShot *SingleShotResult
}

// AnnotatedResponse 标注视频生成响应
type AnnotatedResponse struct {
	AnnotatedVideoPath string `json:"annotated_video_path"`
}

// Predict 提交一段视频进行暴力检测
// 每次调用都是一次全新请求，不重试，不缓存；重试语义由调用方把控
func (e Engine) Predict(ctx context.Context, file io.Reader, filename string, model Model) (*PredictResponse, error) {
	if !model.Valid() {
		return nil, fmt.Errorf("vds: unsupported model %q", model)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(fieldFile, filename)
	if err != nil {
		return nil, fmt.Errorf("vds: build multipart: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return nil, fmt.Errorf("vds: build multipart: %w", err)
	}
	if err := w.WriteField(fieldModel, string(model)); err != nil {
		return nil, fmt.Errorf("vds: build multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("vds: build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Addr+predictPath, &body)
	if err != nil {
		return nil, fmt.Errorf("vds: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.cli.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return decodePredict(resp.Body, model)
}

// decodePredict 按模型选择器解析联合响应
func decodePredict(r io.Reader, model Model) (*PredictResponse, error) {
	out := PredictResponse{Model: model}

	switch model {
	case ModelTwoStream:
		var ts TwoStreamResult
		if err := json.NewDecoder(r).Decode(&ts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if ts.Predictions == nil {
			return nil, fmt.Errorf("%w: missing predictions", ErrMalformedResponse)
		}
		out.TwoStream = &ts
	case ModelI3D, ModelCNNLSTM:
		var ss SingleShotResult
		if err := json.NewDecoder(r).Decode(&ss); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if ss.Probability < 0 || ss.Probability > 1 {
			return nil, fmt.Errorf("%w: probability %v out of range", ErrMalformedResponse, ss.Probability)
		}
		out.SingleShot = &ss
	default:
		return nil, fmt.Errorf("vds: unsupported model %q", model)
	}
	return &out, nil
}

// GenerateAnnotated 触发服务端生成最新的标注视频
func (e Engine) GenerateAnnotated(ctx context.Context) (*AnnotatedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Addr+annotatedPath, nil)
	if err != nil {
		return nil, fmt.Errorf("vds: build request: %w", err)
	}

	resp, err := e.cli.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var out AnnotatedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &out, nil
}
