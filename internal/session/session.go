package session

// Role distinguishes the two independent session slots.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Session is an authenticated identity held until logout or process exit.
type Session struct {
	SubjectID   string `json:"subjectId"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	Token       string `json:"token"`
}

// persistedUser is the admin snapshot written to the store. The token is kept
// under its own key, matching the split the storefront has always used.
type persistedUser struct {
	SubjectID   string `json:"subjectId"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}
