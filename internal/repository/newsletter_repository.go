package repository

import "context"

type NewsletterRepository interface {
	//既に登録済みなら created=false
	Subscribe(ctx context.Context, email string) (created bool, err error)
}
