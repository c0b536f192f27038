package dto

type UsernameAvailabilityResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type UserSearchResponse struct {
	Users []FriendResponse `json:"users"`
}
