package models

// QA is a single question and answer pair focusing on accessibility.
type QA struct {
	Question string `json:"question" jsonschema_description:"A question a user with visual impairments (e.g. using a screen reader) might have about the data visualization."`
	Answer   string `json:"answer" jsonschema_description:"A concise, data-driven answer that describes the visual trend, pattern, or relationship shown in the chart."`
}

// InsightResponse is the root object the model must return for one image.
type InsightResponse struct {
	Insights []QA `json:"insights" jsonschema_description:"A list of question-and-answer pairs that provide accessibility insights for the data visualization."`
}

// Document is the persistent insight mapping: screenshot filename stem
// (format "<indicator>_<fips>") to its extracted QA pairs. A key that is
// present with an empty list marks an image as attempted-and-failed; it is
// never sent to the model again.
type Document map[string][]QA
