package types

import (
	"errors"
	"testing"
)

func TestAppError(t *testing.T) {
	cause := errors.New("underlying")
	err := NewAppError(ErrParse, "无法解析文件", cause)

	if err.Error() != "无法解析文件" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap chain lost the cause")
	}
	if CodeOf(err) != ErrParse {
		t.Errorf("CodeOf() = %s, want %s", CodeOf(err), ErrParse)
	}

	err.Details = "page 3 stream"
	if err.Error() != "无法解析文件: page 3 stream" {
		t.Errorf("Error() with details = %q", err.Error())
	}
}

func TestAppErrorWithPage(t *testing.T) {
	err := NewAppErrorWithPage(ErrExtract, "提取失败", 4, nil)
	if err.Page != 4 {
		t.Errorf("Page = %d, want 4", err.Page)
	}
	if CodeOf(err) != ErrExtract {
		t.Errorf("CodeOf() = %s", CodeOf(err))
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != ErrInternal {
		t.Errorf("CodeOf(plain) = %s, want %s", got, ErrInternal)
	}
}

func TestResolveEnd(t *testing.T) {
	end := 3
	tests := []struct {
		name     string
		unit     ProblemUnit
		pages    int
		expected int
	}{
		{"explicit end", ProblemUnit{PageStart: 1, PageEnd: &end}, 10, 3},
		{"open end resolves to page count", ProblemUnit{PageStart: 2, PageEnd: nil}, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.unit.ResolveEnd(tt.pages); got != tt.expected {
				t.Errorf("ResolveEnd(%d) = %d, want %d", tt.pages, got, tt.expected)
			}
		})
	}
}

func TestPageLabel(t *testing.T) {
	end := 5
	if got := PageLabel(2, &end); got != "P2-5" {
		t.Errorf("PageLabel = %q", got)
	}
	if got := PageLabel(3, nil); got != "P3-end" {
		t.Errorf("PageLabel = %q", got)
	}
}
