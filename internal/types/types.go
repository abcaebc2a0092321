// Package types defines core data types and enums for the contest translator application.
package types

import "fmt"

// DocumentRef 指向一份 PDF 字节源的引用。
// 拆分出的多个题目共享同一个 DocumentRef，不复制字节数据。
type DocumentRef struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// ProblemUnit 一道待翻译/展示的题目
type ProblemUnit struct {
	ID             string       `json:"id"`
	DisplayName    string       `json:"display_name"`
	Source         *DocumentRef `json:"source"`
	PageStart      int          `json:"page_start"`
	PageEnd        *int         `json:"page_end"` // nil 表示到文档末尾，使用时再解析
	ExtractedText  string       `json:"extracted_text"`
	TranslatedText string       `json:"translated_text"`
	Extracting     bool         `json:"extracting"`
	Translating    bool         `json:"translating"`
	LastError      string       `json:"last_error"`
}

// ResolveEnd returns the effective last page of the unit given the
// page count of its source document.
func (u *ProblemUnit) ResolveEnd(pageCount int) int {
	if u.PageEnd != nil {
		return *u.PageEnd
	}
	return pageCount
}

// SegmentBoundary 一个题目的页码范围（含两端）
type SegmentBoundary struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NotificationType 通知类型
type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	NotifyInfo    NotificationType = "info"
)

// Notification 用户可见通知
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrParse         ErrorCode = "PARSE_FAILED"        // 文档或压缩包无法打开
	ErrDecode        ErrorCode = "DECODE_FAILED"       // 某一页无法读取（如加密）
	ErrNoEntries     ErrorCode = "NO_MATCHING_ENTRIES" // 压缩包内没有可用的 PDF
	ErrExtract       ErrorCode = "EXTRACT_FAILED"      // 文本提取失败
	ErrRender        ErrorCode = "RENDER_FAILED"       // 预览渲染失败
	ErrRemoteAPI     ErrorCode = "REMOTE_API_FAILED"   // 翻译接口非 2xx 或内容缺失
	ErrConfigMissing ErrorCode = "CONFIG_MISSING"      // 缺少必需的凭据配置
	ErrInternal      ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Page    int       `json:"page,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithPage creates a new AppError carrying the page that failed
func NewAppErrorWithPage(code ErrorCode, message string, page int, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Page:    page,
		Cause:   cause,
	}
}

// CodeOf returns the ErrorCode of err if it is an AppError, ErrInternal otherwise.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*AppError); ok {
		return e.Code
	}
	return ErrInternal
}

// PageLabel 渲染/提取日志中使用的页码标签
func PageLabel(start int, end *int) string {
	if end == nil {
		return fmt.Sprintf("P%d-end", start)
	}
	return fmt.Sprintf("P%d-%d", start, *end)
}
