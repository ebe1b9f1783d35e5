package model

// File is one locally selected file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult is one successfully stored file.
type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// UploadBatch is the outcome of one upload request. Partial is set when the
// server stored only some of the files.
type UploadBatch struct {
	Results []UploadResult
	Partial bool
}
