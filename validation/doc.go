// Package validation validates persisted records and relay input.
//
// Struct tags use go-playground/validator:
//
//	type InitiateRequest struct {
//	    Name     string `json:"name" validate:"required"`
//	    Size     int64  `json:"size" validate:"required,gt=0"`
//	    MimeType string `json:"mimeType" validate:"required,mimetype"`
//	}
//	err := validation.Validate(req)
//
// Field names in errors follow the json tag.
package validation
