package application

import "time"

// InsertUserRequest is the body of POST /api/usuarios.
type InsertUserRequest struct {
	Nome  string `json:"nome" binding:"nome"`
	Email string `json:"email" binding:"required"`
	Senha string `json:"senha" binding:"senha"`
}

// EditUserRequest is the body of PUT /api/usuarios. Without a body the whole request is read from
// the query string. The id may also come from the path.
type EditUserRequest struct {
	ID    int64  `json:"id" form:"id"`
	Nome  string `json:"nome" form:"nome" binding:"nome"`
	Email string `json:"email" form:"email" binding:"required"`
}

// UserResponse is what the API returns for a user. The password never leaves the server.
type UserResponse struct {
	ID          int64     `json:"id"`
	Nome        string    `json:"nome"`
	Email       string    `json:"email"`
	DataCriacao time.Time `json:"dataCriacao"`
}
