package credential

import "strings"

type User struct {
	Username     string
	PasswordHash string
	LastName     string
	FirstName    string
	MiddleName   string
	YearGroup    string
}

// ExternalIdentity is what the identity provider vouches for after a successful login.
type ExternalIdentity struct {
	Username   string
	Password   string
	LastName   string
	FirstName  string
	MiddleName string
}

type CreateUserRequest struct {
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	LastName   string `json:"lastname" form:"lastname"`
	FirstName  string `json:"firstname" form:"firstname"`
	MiddleName string `json:"middlename" form:"middlename"`
}

type Profile struct {
	Username    string `json:"username"`
	LastName    string `json:"lastname"`
	FirstName   string `json:"firstname"`
	MiddleName  string `json:"middlename,omitempty"`
	DisplayName string `json:"display_name"`
	YearGroup   string `json:"year_group,omitempty"`
}

// DisplayName renders "Last, First Middle", dropping whatever parts are empty.
func DisplayName(last, first, middle string) string {
	given := strings.TrimSpace(strings.Join([]string{first, middle}, " "))
	switch {
	case last == "" && given == "":
		return ""
	case last == "":
		return given
	case given == "":
		return last
	}
	return last + ", " + given
}

func (u *User) ToProfile() *Profile {
	return &Profile{
		Username:    u.Username,
		LastName:    u.LastName,
		FirstName:   u.FirstName,
		MiddleName:  u.MiddleName,
		DisplayName: DisplayName(u.LastName, u.FirstName, u.MiddleName),
		YearGroup:   u.YearGroup,
	}
}
