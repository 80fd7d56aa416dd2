package portal

import "time"

// Note is one uploaded file placed in the hierarchy.
type Note struct {
	ID           string    `json:"id" db:"id" bson:"_id"`
	DepartmentID string    `json:"department_id" db:"department_id" bson:"departmentId"`
	BatchID      string    `json:"batch_id" db:"batch_id" bson:"batchId"`
	SemesterID   string    `json:"semester_id" db:"semester_id" bson:"semesterId"`
	SubjectID    string    `json:"subject_id" db:"subject_id" bson:"subjectId"`
	FolderID     *string   `json:"folder_id" db:"folder_id" bson:"folderId"` // nil = subject root
	Title        string    `json:"title" db:"title" bson:"title"`
	FileURL      string    `json:"file_url" db:"file_url" bson:"fileUrl"`
	FileType     string    `json:"file_type" db:"file_type" bson:"fileType"`
	StoragePath  string    `json:"-" db:"storage_path" bson:"storagePath"`
	Size         int64     `json:"size" db:"size" bson:"size"`
	UploadedBy   string    `json:"uploaded_by" db:"uploaded_by" bson:"uploadedBy"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
}

// Scope returns the location the note lives in.
func (n Note) Scope() Scope {
	return Scope{
		DepartmentID: n.DepartmentID,
		BatchID:      n.BatchID,
		SemesterID:   n.SemesterID,
		SubjectID:    n.SubjectID,
	}
}

// InFolder reports whether the note is filed directly under folderID.
// A nil folderID matches notes at the subject root.
func (n Note) InFolder(folderID *string) bool {
	if folderID == nil {
		return n.FolderID == nil || *n.FolderID == ""
	}
	return n.FolderID != nil && *n.FolderID == *folderID
}
