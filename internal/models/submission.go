package models

// SubmissionResult is the terminal artifact of a successful submission.
type SubmissionResult struct {
	ViewerURL     string `json:"viewer_url"`
	RawIdentifier string `json:"raw_identifier"`
	HTTPStatus    int    `json:"http_status"`
}
