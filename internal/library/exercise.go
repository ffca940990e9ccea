package library

// Exercise is one catalog entry: the exercise name, the primary body
// part it targets and an optional demo media link. Programs reference
// these entries from their planned exercises.
type Exercise struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	BodyPart string `json:"bodyPart"`
	MediaURL string `json:"mediaUrl,omitempty"`
}
