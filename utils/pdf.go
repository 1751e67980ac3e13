package utils

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// CountPDFPages trả về số trang của file PDF nằm trong bộ nhớ.
func CountPDFPages(data []byte) (pages int, err error) {
	// thư viện pdf panic với một số file hỏng
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("đọc PDF thất bại: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}
