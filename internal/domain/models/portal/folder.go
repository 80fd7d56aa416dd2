package portal

import "time"

// Folder groups notes inside one subject. Folders do not nest.
type Folder struct {
	ID           string    `json:"id" db:"id" bson:"_id"`
	DepartmentID string    `json:"department_id" db:"department_id" bson:"departmentId"`
	BatchID      string    `json:"batch_id" db:"batch_id" bson:"batchId"`
	SemesterID   string    `json:"semester_id" db:"semester_id" bson:"semesterId"`
	SubjectID    string    `json:"subject_id" db:"subject_id" bson:"subjectId"`
	Name         string    `json:"name" db:"name" bson:"name"`
	CreatedBy    string    `json:"created_by" db:"created_by" bson:"createdBy"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
}

// Scope returns the location the folder lives in.
func (f Folder) Scope() Scope {
	return Scope{
		DepartmentID: f.DepartmentID,
		BatchID:      f.BatchID,
		SemesterID:   f.SemesterID,
		SubjectID:    f.SubjectID,
	}
}
