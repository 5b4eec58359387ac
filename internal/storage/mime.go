package storage

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// ContentTypeFor derives a blob's media type from the file name extension.
// Unknown or missing extensions are application/octet-stream.
func ContentTypeFor(name string) string {
	if mime := utils.GetMIME(filepath.Ext(name)); mime != "" {
		return mime
	}
	return fiber.MIMEOctetStream
}
