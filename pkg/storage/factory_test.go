// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/config"
	"github.com/kadirpekel/agentrt/pkg/storage"
)

func TestNew_NoneTypeReturnsNilBackend(t *testing.T) {
	backend, err := storage.New(context.Background(), config.StorageConfig{Type: config.StorageNone})
	require.NoError(t, err)
	assert.Nil(t, backend)
}

func TestNew_FileTypeBuildsFileBackend(t *testing.T) {
	backend, err := storage.New(context.Background(), config.StorageConfig{
		Type: config.StorageFile,
		Path: filepath.Join(t.TempDir(), "sessions"),
	})
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	_, ok := backend.(*storage.FileBackend)
	assert.True(t, ok)
}

func TestNew_UnknownTypeErrors(t *testing.T) {
	_, err := storage.New(context.Background(), config.StorageConfig{Type: "carrier-pigeon"})
	assert.Error(t, err)
}
