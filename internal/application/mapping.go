package application

import (
	"time"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/internal/domain/service"
	"github.com/oksasatya/go-entra-users/internal/infrastructure/search"
)

func ToInsertCommand(r InsertUserRequest) service.InsertUserCommand {
	return service.InsertUserCommand{Name: r.Nome, Email: r.Email, Password: r.Senha}
}

func ToEditCommand(r EditUserRequest) service.EditUserCommand {
	return service.EditUserCommand{ID: r.ID, Name: r.Nome, Email: r.Email}
}

func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:          u.ID(),
		Nome:        u.Name(),
		Email:       u.Email(),
		DataCriacao: u.CreatedAt(),
	}
}

func ToUserResponses(users []*entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

func fromDocument(d search.Document) UserResponse {
	created, _ := time.Parse(time.RFC3339Nano, d.DataCriacao)
	return UserResponse{ID: d.ID, Nome: d.Nome, Email: d.Email, DataCriacao: created}
}
