package records

// ListOutput for GET /api/records
type ListOutput struct {
	Body []Record
}

// CreateOutput for POST /api/records (201 Created)
type CreateOutput struct {
	Location string `header:"Location" doc:"URL of the created record"`
	Body     Record
}

// RecordOutput for GET and PUT /api/records/{id}
type RecordOutput struct {
	Body Record
}

// DeleteOutput for DELETE /api/records/{id}
type DeleteOutput struct {
	Body Deleted
}

// FileOutput carries an export download.
type FileOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// ImportOutput for POST /api/records/import
type ImportOutput struct {
	Body ImportResult
}

// StatsOutput for GET /api/records/stats
type StatsOutput struct {
	Body Stats
}
