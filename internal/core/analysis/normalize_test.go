package analysis

import (
	"errors"
	"testing"

	"github.com/gowvp/vigil/pkg/vds"
)

func TestNormalizeTwoStream(t *testing.T) {
	resp := &vds.PredictResponse{
		Model: vds.ModelTwoStream,
		TwoStream: &vds.TwoStreamResult{
			Filename: "fight.mp4",
			Predictions: []string{
				"[0.0s, 5.0s] score : 0.920 Etat : Violence détectée",
				"[5.0s, 10.0s] score : 0.100 Etat : Aucune violence détectée",
			},
			AnnotatedVideoPath: "/annotated_videos/fight_annotated.mp4",
		},
	}

	out, err := Normalize(resp, func(p string) string {
		return "http://127.0.0.1:8000" + p
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if len(out.Intervals) != 2 {
		t.Fatalf("intervals = %d, want 2", len(out.Intervals))
	}
	if !out.Violent {
		t.Fatal("want violent result")
	}
	if out.SourceLabel != "fight.mp4" {
		t.Fatalf("source label = %q", out.SourceLabel)
	}
	if out.AnnotatedURL != "http://127.0.0.1:8000/annotated_videos/fight_annotated.mp4" {
		t.Fatalf("annotated url = %q", out.AnnotatedURL)
	}

	first := out.Intervals[0]
	if first.StartLabel != "0.0s, 5.0s" || first.Confidence != 92.0 || !first.IsViolent {
		t.Fatalf("first interval = %+v", first)
	}
	second := out.Intervals[1]
	if second.Confidence != 10.0 || second.IsViolent {
		t.Fatalf("second interval = %+v", second)
	}
}

// 坏行跳过不拖垮整批，且存活行保持原有顺序
func TestNormalizeSkipsMalformedLines(t *testing.T) {
	resp := &vds.PredictResponse{
		Model: vds.ModelTwoStream,
		TwoStream: &vds.TwoStreamResult{
			Filename: "clip.mp4",
			Predictions: []string{
				"[0s, 5s] score : 0.300 Etat : Aucune violence détectée",
				"total garbage line",
				"[5s, 10s] score : 1.700 Etat : Violence détectée", // 分数越界
				"[10s, 15s] score : 0.800 Etat : Violence détectée",
			},
		},
	}

	out, err := Normalize(resp, nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(out.Intervals) != 2 {
		t.Fatalf("intervals = %d, want 2", len(out.Intervals))
	}
	if out.Intervals[0].StartLabel != "0s, 5s" || out.Intervals[1].StartLabel != "10s, 15s" {
		t.Fatalf("order broken: %+v", out.Intervals)
	}
	if !out.Violent {
		t.Fatal("want violent result")
	}
}

// 状态标签存在英法两种写法，包含匹配都要认得
func TestNormalizeLabelVariants(t *testing.T) {
	resp := &vds.PredictResponse{
		Model: vds.ModelTwoStream,
		TwoStream: &vds.TwoStreamResult{
			Filename: "clip.mp4",
			Predictions: []string{
				"[00:00-00:05] score : 0.92 Etat : Violence",
				"[00:05-00:10] score : 0.10 Etat : Normal",
			},
		},
	}

	out, err := Normalize(resp, nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(out.Intervals) != 2 {
		t.Fatalf("intervals = %d, want 2", len(out.Intervals))
	}
	if out.Intervals[0].Confidence != 92.0 || !out.Intervals[0].IsViolent {
		t.Fatalf("first = %+v", out.Intervals[0])
	}
	if out.Intervals[1].Confidence != 10.0 || out.Intervals[1].IsViolent {
		t.Fatalf("second = %+v", out.Intervals[1])
	}
}

func TestNormalizeAllMalformed(t *testing.T) {
	resp := &vds.PredictResponse{
		Model: vds.ModelTwoStream,
		TwoStream: &vds.TwoStreamResult{
			Filename:    "clip.mp4",
			Predictions: []string{"garbage", "more garbage"},
		},
	}

	if _, err := Normalize(resp, nil); !errors.Is(err, vds.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestNormalizeSingleShot(t *testing.T) {
	resp := &vds.PredictResponse{
		Model: vds.ModelI3D,
		SingleShot: &vds.SingleShotResult{
			Filename:    "clip.mp4",
			Probability: 0.87,
			IsViolent:   true,
		},
	}

	out, err := Normalize(resp, nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(out.Intervals) != 1 {
		t.Fatalf("intervals = %d, want 1", len(out.Intervals))
	}
	iv := out.Intervals[0]
	if iv.StartLabel != "" {
		t.Fatalf("single shot interval label = %q, want empty", iv.StartLabel)
	}
	if iv.Probability != 0.87 || iv.Confidence != 87.0 || !iv.IsViolent {
		t.Fatalf("interval = %+v", iv)
	}
	if !out.Violent {
		t.Fatal("want violent result")
	}
}

func TestIsViolentState(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{"Violence détectée", true},
		{"VIOLENCE DÉTECTÉE", true},
		{"violence", true},
		{"Aucune violence détectée", false},
		{"no violence detected", false},
		{"non violent", false},
		{"pas de violence", false},
		{"calme", false},
	}
	for _, tt := range tests {
		if got := isViolentState(tt.state); got != tt.want {
			t.Errorf("isViolentState(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRoundPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.92, 92.0},
		{0.1, 10.0},
		{0.8765, 87.7},
		{0, 0},
		{1, 100},
	}
	for _, tt := range tests {
		if got := roundPercent(tt.in); got != tt.want {
			t.Errorf("roundPercent(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
