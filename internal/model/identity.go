package model

// Identity is the local user. There is no authentication: a name is enough.
type Identity struct {
	Authorized  bool   `json:"authorized"`
	DisplayName string `json:"display_name"`
}
