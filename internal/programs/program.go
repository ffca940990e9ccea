package programs

import "time"

// Program is a named, user-owned collection of workout days.
type Program struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Days        []Day     `json:"days,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Day is one workout session template within a program. Order is unique
// within the program and defines the cycle order for schedule generation.
type Day struct {
	ID        int               `json:"id"`
	ProgramID int               `json:"programId"`
	Name      string            `json:"name"`
	Order     int               `json:"order"`
	Exercises []PlannedExercise `json:"exercises,omitempty"`
}

// PlannedExercise references a library exercise plus the planned
// sets/reps/weight targets. The targets are all optional.
type PlannedExercise struct {
	ID        int    `json:"id"`
	DayID     int    `json:"dayId"`
	LibraryID int    `json:"libraryId"`
	Order     int    `json:"order"`
	Notes     string `json:"notes,omitempty"`

	Sets   *int     `json:"sets,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
	Weight *float64 `json:"weight,omitempty"`

	// joined in from the exercise library
	Name     string `json:"name,omitempty"`
	BodyPart string `json:"bodyPart,omitempty"`
	MediaURL string `json:"mediaUrl,omitempty"`
}
