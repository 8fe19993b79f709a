package dto

// ── 文件模块 DTO ──

// FileResponse 文件元数据响应
type FileResponse struct {
	ID           string  `json:"id"`
	Filename     string  `json:"filename"`
	OriginalName string  `json:"original_name"`
	MimeType     string  `json:"mime_type"`
	SizeBytes    int64   `json:"size_bytes"`
	PageID       *string `json:"page_id,omitempty"`
	UploaderID   string  `json:"uploader_id"`
	CreatedAt    string  `json:"created_at"`
}
