package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validNodeDoc() NodeDoc {
	return NodeDoc{
		ID:   uuid.New().String(),
		Kind: "blur",
		Name: "soften",
		X:    10,
		Y:    20,
		Params: map[string]ParamDoc{
			"radius": {Kind: "number", Number: 3},
		},
	}
}

func TestValidateWithPlayground_NodeDoc(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NodeDoc)
		wantErr bool
		field   string
	}{
		{
			name:   "valid node passes",
			mutate: func(*NodeDoc) {},
		},
		{
			name:    "missing id",
			mutate:  func(n *NodeDoc) { n.ID = "" },
			wantErr: true,
			field:   "id",
		},
		{
			name:    "malformed id",
			mutate:  func(n *NodeDoc) { n.ID = "not-a-uuid" },
			wantErr: true,
			field:   "id",
		},
		{
			name:    "unknown kind",
			mutate:  func(n *NodeDoc) { n.Kind = "sharpen" },
			wantErr: true,
			field:   "kind",
		},
		{
			name:    "empty name",
			mutate:  func(n *NodeDoc) { n.Name = "" },
			wantErr: true,
			field:   "name",
		},
		{
			name: "bad param kind",
			mutate: func(n *NodeDoc) {
				n.Params = map[string]ParamDoc{"radius": {Kind: "float"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validNodeDoc()
			tt.mutate(&doc)

			err := ValidateWithPlayground(doc)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			verrs, ok := err.(ValidationErrors)
			require.True(t, ok, "expected ValidationErrors, got %T", err)
			require.NotEmpty(t, verrs)
			if tt.field != "" {
				// Field names come from json tags, not Go names.
				assert.Equal(t, tt.field, verrs[0].Field)
			}
		})
	}
}

func TestValidateWithPlayground_ConnectionDoc(t *testing.T) {
	conn := ConnectionDoc{
		ID:       uuid.New().String(),
		FromNode: uuid.New().String(),
		FromPort: uuid.New().String(),
		ToNode:   uuid.New().String(),
		ToPort:   uuid.New().String(),
	}
	assert.NoError(t, ValidateWithPlayground(conn))

	conn.ToPort = "12345"
	err := ValidateWithPlayground(conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to_port")
}

func TestGraphDoc_Validate(t *testing.T) {
	a := validNodeDoc()
	b := validNodeDoc()

	makeDoc := func() GraphDoc {
		return GraphDoc{
			ID:    uuid.New().String(),
			Name:  "comp",
			Nodes: []NodeDoc{a, b},
			Connections: []ConnectionDoc{{
				ID:       uuid.New().String(),
				FromNode: a.ID,
				FromPort: uuid.New().String(),
				ToNode:   b.ID,
				ToPort:   uuid.New().String(),
			}},
		}
	}

	t.Run("valid document passes", func(t *testing.T) {
		doc := makeDoc()
		assert.NoError(t, doc.Validate())
	})

	t.Run("duplicate node ids", func(t *testing.T) {
		doc := makeDoc()
		doc.Nodes = append(doc.Nodes, a)
		err := doc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate node ID")
	})

	t.Run("connection to missing node", func(t *testing.T) {
		doc := makeDoc()
		doc.Connections[0].ToNode = uuid.New().String()
		err := doc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target node does not exist")
	})

	t.Run("self loop", func(t *testing.T) {
		doc := makeDoc()
		doc.Connections[0].ToNode = a.ID
		err := doc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "itself")
	})

	t.Run("errors accumulate", func(t *testing.T) {
		doc := makeDoc()
		doc.Nodes = append(doc.Nodes, b)
		doc.Connections[0].FromNode = uuid.New().String()
		err := doc.Validate()
		require.Error(t, err)

		verrs, ok := err.(ValidationErrors)
		require.True(t, ok)
		assert.Len(t, verrs, 2)
	})
}

func TestValidationError_Messages(t *testing.T) {
	single := ValidationError{Field: "name", Value: "", Message: "field is required"}
	assert.Contains(t, single.Error(), "name")
	assert.Contains(t, single.Error(), "field is required")

	var none ValidationErrors
	assert.NotPanics(t, func() { _ = none.Error() })
}
