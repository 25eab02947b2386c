package store

// Document type tags. These mirror the upload categories exposed to users;
// PROJECT_REPORT and QAP_CONVERTED are produced by the system itself.
const (
	DocPO             = "PO"
	DocFCL            = "FCL"
	DocFCM            = "FCM"
	DocDrawing        = "DRAWING"
	DocQAP            = "QAP"
	DocJIR            = "JIR"
	DocFormIV         = "FORM_IV"
	DocTestReport     = "TEST_REPORT"
	DocFATTrial       = "FAT_TRIAL"
	DocInspectionCall = "INSPECTION_CALL_LETTER"
	DocQAPConverted   = "QAP_CONVERTED"
	DocProjectReport  = "PROJECT_REPORT"
	DocOther          = "OTHER"
)

// User is a tracker account. Only the fields the core needs are modeled;
// authentication lives upstream.
type User struct {
	ID        int64
	Name      string
	Role      string
	CreatedAt int64
}

// Project carries the closure-relevant subset of a project.
type Project struct {
	ID                    int64
	PONumber              string
	OPAName               string
	QAFieldUnit           string
	ProjectClassification string
	FirmName              string
	PODate                int64 // unix ms, 0 = unset
	MainEquipment         string
	OrderValue            float64
	EngineerID            int64 // 0 = unassigned
	JCQAOID               int64 // 0 = unassigned
	ProgressPercentage    float64
	IsClosed              bool
	IsClosureRequested    bool
	IsClosureApproved     bool
	ClosureRequestRemarks string
	CreatedAt             int64
}

// Document is one stored artifact tied to a project.
type Document struct {
	ID           int64  `json:"id"`
	ProjectID    int64  `json:"project_id"`
	Type         string `json:"type"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Path         string `json:"path"`
	CreatedAt    int64  `json:"created_at"`
}

// QAPSerial is one row of a project's quality-assurance checklist.
type QAPSerial struct {
	ID           int64  `json:"id"`
	ProjectID    int64  `json:"project_id"`
	SerialNumber string `json:"serial_number"`
	Description  string `json:"description"`
	IsCompleted  bool   `json:"is_completed"`
	Remarks      string `json:"remarks"`
	CompletedAt  int64  `json:"completed_at,omitempty"` // unix ms, 0 = not completed
}

// KnowledgeBankItem is an archival record, stored independently of
// per-project documents.
type KnowledgeBankItem struct {
	ID           int64  `json:"id"`
	Category     string `json:"category"`
	Title        string `json:"title"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Path         string `json:"path"`
	UploadedBy   int64  `json:"uploaded_by"`
	CreatedAt    int64  `json:"created_at"`
}
