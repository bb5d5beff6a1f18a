package domain

// Org unit types form a fixed three-level hierarchy.
const (
	OrgCompany     = "Company"
	OrgDivision    = "Division"
	OrgSubDivision = "SubDivision"
)

// OrgUnit is a node in the organizational hierarchy. ParentID is zero for
// top-level companies.
type OrgUnit struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id,omitempty"`
}
