package mongox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Config struct {
	URI            string `split_words:"true" required:"true"`
	Database       string `split_words:"true" default:"moviesdb"`
	ConnectTimeout int    `split_words:"true" default:"10"`
}

func (c *Config) New(ctx context.Context) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.ConnectTimeout)*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.URI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return client, nil
}
