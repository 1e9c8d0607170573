/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/wso2/customer-data-dedup/internal/system/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DBClientInterface defines the interface for database operations.
type DBClientInterface interface {
	Collection(name string) *mongo.Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// MongoDB holds a live connection and the database records are read from.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect opens a connection to uri and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string, timeout time.Duration) (*MongoDB, error) {

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout)
	mongoClient, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := mongoClient.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.GetLogger().Info("Connected to MongoDB", log.String("database", dbName))
	return NewDBClient(mongoClient, dbName), nil
}

// NewDBClient wraps an already connected client.
func NewDBClient(mongoClient *mongo.Client, dbName string) *MongoDB {

	return &MongoDB{
		Client:   mongoClient,
		Database: mongoClient.Database(dbName),
	}
}

// Collection returns a handle to the named collection.
func (m *MongoDB) Collection(name string) *mongo.Collection {

	return m.Database.Collection(name)
}

// Ping checks that the primary is reachable.
func (m *MongoDB) Ping(ctx context.Context) error {

	return m.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *MongoDB) Close(ctx context.Context) error {

	return m.Client.Disconnect(ctx)
}
