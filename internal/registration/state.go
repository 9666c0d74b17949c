package registration

import "time"

type UploadStatus string

const (
	UploadNone      UploadStatus = "none"
	UploadUploading UploadStatus = "uploading"
	UploadUploaded  UploadStatus = "uploaded"
	UploadFailed    UploadStatus = "failed"
)

// Сообщение для пользователя, если загрузка в облако не удалась. Продолжить можно.
const UploadFailedMessage = "File upload to cloud storage failed. It will be stored locally. You can continue."

type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type UploadInfo struct {
	Status  UploadStatus `json:"status"`
	URL     string       `json:"url,omitempty"`
	Message string       `json:"message,omitempty"`
}

// State снимок регистрации для ответа клиенту
type State struct {
	ID        string       `json:"id"`
	Step      Step         `json:"step"`
	StepName  string       `json:"stepName"`
	Completed []Step       `json:"completed"`
	Company   *CompanyInfo `json:"company,omitempty"`
	Email     string       `json:"email,omitempty"`
	File      *FileInfo    `json:"file,omitempty"`
	Upload    UploadInfo   `json:"upload"`
	VendorID  string       `json:"vendorId,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
