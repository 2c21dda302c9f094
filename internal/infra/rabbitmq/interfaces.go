package rabbitmq

import "github.com/charbel0004/Unishelf-sub000/internal/infra"

var _ infra.EventPublisher = (*Publisher)(nil)
