package model

// File 上传文件元数据表 — 对应 files
// 文件内容落盘到 upload.dir，此处仅存元数据。
type File struct {
	FileID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"file_id"`
	Filename     string  `gorm:"type:varchar(255);not null"                     json:"filename"`      // 存储文件名（uuid + 扩展名）
	OriginalName string  `gorm:"type:varchar(255);not null"                     json:"original_name"` // 用户上传时的文件名
	MimeType     string  `gorm:"type:varchar(100);not null"                     json:"mime_type"`
	SizeBytes    int64   `gorm:"not null"                                       json:"size_bytes"`
	StoragePath  string  `gorm:"type:varchar(500);not null"                     json:"-"`
	UploaderID   string  `gorm:"type:uuid;not null"                             json:"uploader_id"`
	PageID       *string `gorm:"type:uuid"                                      json:"page_id,omitempty"`
	SoftDeleteModel

	// 关联
	Uploader *User `gorm:"foreignKey:UploaderID;references:UserID" json:"uploader,omitempty"`
}

// TableName 指定表名
func (File) TableName() string { return "files" }
