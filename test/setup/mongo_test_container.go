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

package setup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/wso2/customer-data-dedup/internal/system/database/client"
)

const mongoImage = "mongo:7"

// TestMongo contains the running container and a connected client.
type TestMongo struct {
	Container *mongodb.MongoDBContainer
	DB        *client.MongoDB
	URI       string
}

// SetupTestMongo spins up a MongoDB container and connects to dbName.
func SetupTestMongo(ctx context.Context, dbName string) (*TestMongo, error) {
	container, err := mongodb.Run(ctx, mongoImage)
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, err
	}

	db, err := client.Connect(ctx, uri, dbName, 30*time.Second)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, err
	}

	log.Printf("MongoDB container started at %s", uri)

	return &TestMongo{
		Container: container,
		DB:        db,
		URI:       uri,
	}, nil
}

// Teardown disconnects and stops the container.
func (m *TestMongo) Teardown(ctx context.Context) {
	_ = m.DB.Close(ctx)
	_ = testcontainers.TerminateContainer(m.Container)
}
