package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"filevault/internal/model"
	"filevault/internal/repository"
)

var validate = newValidator()

// newValidator registers the "filetype" tag, which accepts the known model.FileType values.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("filetype", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(model.FileType)
		return ok && t.Valid()
	})
	return v
}

// ParentRef is the parentId of an upload. Clients send it either as a
// string or as the number 0 for the root.
type ParentRef string

func (p *ParentRef) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = ParentRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("parentId must be a string or a number")
	}
	*p = ParentRef(n.String())
	return nil
}

// UploadInput is the body of an upload request.
// Fields are declared in the order their rules are checked.
type UploadInput struct {
	Name     string         `json:"name" validate:"required"`
	Type     model.FileType `json:"type" validate:"required,filetype"`
	Data     string         `json:"data" validate:"required_unless=Type folder"`
	ParentID ParentRef      `json:"parentId"`
	IsPublic bool           `json:"isPublic"`
}

// uploadParams is a validated upload.
type uploadParams struct {
	name     string
	fileType model.FileType
	parentID string
	isPublic bool
	content  []byte
}

// validateUpload checks the upload shape and that the parent is a folder owned by userID.
// The first failing rule wins: name, type, data, parent.
func validateUpload(ctx context.Context, repo repository.FileRepository, userID string, in UploadInput) (*uploadParams, error) {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Name":
				return nil, ErrMissingName
			case "Type":
				return nil, ErrInvalidType
			case "Data":
				return nil, ErrMissingData
			}
		}
		return nil, err
	}

	p := &uploadParams{
		name:     in.Name,
		fileType: in.Type,
		parentID: normalizeParentID(string(in.ParentID)),
		isPublic: in.IsPublic,
	}

	if in.Type != model.FileTypeFolder {
		content, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return nil, ErrInvalidData
		}
		p.content = content
	}

	if p.parentID != model.RootParentID {
		if _, err := uuid.Parse(p.parentID); err != nil {
			return nil, ErrParentNotFound
		}
		parent, err := repo.FindByID(ctx, p.parentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("lookup parent: %w", err)
		}
		// A folder owned by someone else is reported as missing.
		if !parent.IsFolder() || parent.UserID != userID {
			return nil, ErrParentNotFound
		}
	}
	return p, nil
}

// normalizeParentID maps the empty value to the root sentinel.
func normalizeParentID(id string) string {
	if id == "" {
		return model.RootParentID
	}
	return id
}

// ParsePage turns the "page" query value into a page index.
// Negative or non-numeric values are page 0; numbers too large for an int
// are clamped to MaxPage, which is always past the end.
func ParsePage(s string) int {
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return MaxPage
	}
	if err != nil || n < 0 {
		return 0
	}
	return min(n, MaxPage)
}
