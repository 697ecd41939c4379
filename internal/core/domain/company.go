package domain

type Company struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Domain   string    `json:"domain,omitempty"`
	JoinCode string    `json:"joinCode,omitempty"`
	Created  Timestamp `json:"createdAt"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	JoinCode string `json:"joinCode" validate:"required"`
}

type AdminInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterCompanyInput struct {
	CompanyName string     `json:"companyName" validate:"required,max=120"`
	Domain      string     `json:"domain,omitempty" validate:"omitempty,fqdn"`
	Admin       AdminInput `json:"admin" validate:"required"`
}

type ProfileInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
}

type PasswordInput struct {
	CurrentPassword string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}
