package utils

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SubmissionURLPrefix is where uploaded papers are served from.
const SubmissionURLPrefix = "/uploads/submissions/"

var allowedSubmissionTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

var allowedSubmissionExts = map[string]bool{".pdf": true, ".doc": true, ".docx": true}

var (
	ErrFileTooLarge   = errors.New("Arquivo muito grande. Tamanho máximo: 10MB")
	ErrFileType       = errors.New("Tipo de arquivo inválido. Permitidos: PDF, DOC, DOCX")
	ErrFileExtension  = errors.New("Extensão de arquivo inválida. Permitidas: .pdf, .doc, .docx")
	ErrInvalidFileURL = errors.New("URL de arquivo inválida")
)

// UploadedFile describes a stored submission file.
type UploadedFile struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

// SaveSubmissionFile validates and stores a paper under destDir as
// <unixmillis>-<random6>-<sanitized name>.
func SaveSubmissionFile(file *multipart.FileHeader, destDir string, maxSize int64) (*UploadedFile, error) {
	if file.Size > maxSize {
		return nil, ErrFileTooLarge
	}
	mimeType := file.Header.Get("Content-Type")
	if !allowedSubmissionTypes[mimeType] {
		return nil, ErrFileType
	}
	if !allowedSubmissionExts[strings.ToLower(filepath.Ext(file.Filename))] {
		return nil, ErrFileExtension
	}

	suffix, err := RandomString(6)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), strings.ToLower(suffix), SanitizeFileName(file.Filename, 50))

	if _, err := SaveUploadedFile(file, destDir, name); err != nil {
		return nil, err
	}
	return &UploadedFile{
		FileURL:  SubmissionURLPrefix + name,
		FileName: file.Filename,
		FileSize: file.Size,
		MimeType: mimeType,
	}, nil
}

// SaveUploadedFile copies the multipart file to destDir/name.
func SaveUploadedFile(file *multipart.FileHeader, destDir, name string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	filePath := filepath.Join(destDir, name)
	dst, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return filePath, nil
}

// DeleteSubmissionFile removes a file previously returned by
// SaveSubmissionFile. A missing file is not an error.
func DeleteSubmissionFile(fileURL, destDir string) error {
	if !strings.HasPrefix(fileURL, SubmissionURLPrefix) {
		return ErrInvalidFileURL
	}
	name := strings.TrimPrefix(fileURL, SubmissionURLPrefix)
	if name == "" || name != filepath.Base(name) || name == ".." {
		return ErrInvalidFileURL
	}

	filePath := filepath.Join(destDir, name)
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Printf("[UPLOAD] File not found for deletion: %s", filePath)
			return nil
		}
		return err
	}
	return nil
}
