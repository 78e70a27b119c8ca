package models

// UserRole — роль в токене доступа.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleReferee UserRole = "referee"
)

// Admin — организатор, которому разрешены маршруты /admin.
// Учётные данные приходят из конфигурации, отдельной коллекции нет.
type Admin struct {
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
