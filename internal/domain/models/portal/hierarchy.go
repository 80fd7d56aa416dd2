package portal

import "time"

// GeneralSubjectID is the literal id of the synthetic catch-all subject.
// It is never persisted; folders and notes filed under it carry this value
// as their SubjectID.
const GeneralSubjectID = "general"

// GeneralSubjectName is the display name of the synthetic subject.
const GeneralSubjectName = "General Materials"

type Department struct {
	ID        string    `json:"id" db:"id" bson:"_id"`
	Name      string    `json:"name" db:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
}

type Batch struct {
	ID           string    `json:"id" db:"id" bson:"_id"`
	DepartmentID string    `json:"department_id" db:"department_id" bson:"departmentId"`
	Name         string    `json:"name" db:"name" bson:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
}

// Semester hangs off a Batch, matching the drill-down order used by browsing.
type Semester struct {
	ID        string    `json:"id" db:"id" bson:"_id"`
	BatchID   string    `json:"batch_id" db:"batch_id" bson:"batchId"`
	Name      string    `json:"name" db:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
}

type Subject struct {
	ID         string    `json:"id" db:"id" bson:"_id"`
	SemesterID string    `json:"semester_id" db:"semester_id" bson:"semesterId"`
	Name       string    `json:"name" db:"name" bson:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
}

// IsGeneral reports whether s is the synthetic catch-all subject.
func (s Subject) IsGeneral() bool {
	return s.ID == GeneralSubjectID
}

// GeneralSubject fabricates the catch-all subject for a semester.
func GeneralSubject(semesterID string) Subject {
	return Subject{
		ID:         GeneralSubjectID,
		SemesterID: semesterID,
		Name:       GeneralSubjectName,
	}
}
