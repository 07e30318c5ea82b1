package entity

// UserAuth identifies an authenticated admin API caller.
type UserAuth struct {
	Username string `json:"username" bson:"username"`
}
