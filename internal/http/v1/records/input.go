package records

import (
	"mime/multipart"

	recordsvc "github.com/RaidenIV/dj-database/internal/service/record"
)

// RecordBody is the writable part of a record. Every field is optional in
// the schema; the required field check happens in the service so the error
// can name all missing fields at once.
type RecordBody struct {
	StageName       string `json:"stageName,omitempty"       maxLength:"200"  doc:"Stage name (required)"     example:"DJ Nova"`
	FullName        string `json:"fullName,omitempty"        maxLength:"200"  doc:"Full name (required)"      example:"Nova Reyes"`
	City            string `json:"city,omitempty"            maxLength:"200"  doc:"City"                      example:"Austin"`
	State           string `json:"state,omitempty"           maxLength:"100"  doc:"State code or name"        example:"TX"`
	PhoneNumber     string `json:"phoneNumber,omitempty"     maxLength:"50"   doc:"Phone number, any format"  example:"1 (555) 123-4567"`
	ExperienceLevel string `json:"experienceLevel,omitempty" maxLength:"100"  doc:"Experience level"          example:"Intermediate"`
	Age             string `json:"age,omitempty"             maxLength:"50"   doc:"Age or range (required)"   example:"25-34"`
	Email           string `json:"email,omitempty"           maxLength:"320"  doc:"Email address (required)"  example:"nova@example.com"`
	SocialMedia     string `json:"socialMedia,omitempty"     maxLength:"1000" doc:"Social media links"        example:"@djnova"`
	HeardAbout      string `json:"heardAbout,omitempty"      maxLength:"1000" doc:"Referral sources"          example:"Instagram; Friend"`
}

func (b RecordBody) toInput() recordsvc.Input {
	return recordsvc.Input(b)
}

// ListInput for GET /api/records
type ListInput struct {
	Q     string `query:"q"     maxLength:"200" doc:"Case-insensitive search over names, city, state, email and phone"`
	Sort  string `query:"sort"  default:"newest" enum:"newest,stageName,stageName-desc,fullName,fullName-desc,age,experience,city" doc:"Sort order"`
	Limit int    `query:"limit" minimum:"0" doc:"Maximum records to return; 0 returns all"`
}

// CreateInput for POST /api/records
type CreateInput struct {
	Body RecordBody
}

// GetInput for GET /api/records/{id}
type GetInput struct {
	ID string `path:"id" maxLength:"64" doc:"Record identifier"`
}

// UpdateInput for PUT /api/records/{id}
type UpdateInput struct {
	ID   string `path:"id" maxLength:"64" doc:"Record identifier"`
	Body RecordBody
}

// DeleteInput for DELETE /api/records/{id}
type DeleteInput struct {
	ID string `path:"id" maxLength:"64" doc:"Record identifier"`
}

// ImportInput for POST /api/records/import. The file goes in form field
// "file".
type ImportInput struct {
	RawBody multipart.Form
}
