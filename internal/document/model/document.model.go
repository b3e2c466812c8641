package model

// UploadResponse names the stored document so a knowledge-base node can reference it.
type UploadResponse struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}
