package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntity(t *testing.T) {
	t.Run("decodes typed fields and document", func(t *testing.T) {
		data := []byte(`{
			"tableName": "users",
			"displayName": "Users",
			"generateForm": true,
			"columns": {
				"id": {"type": "uuid", "primaryKey": true},
				"email": {"type": "string", "unique": true},
				"age": {"type": "integer", "nullable": true}
			},
			"relationships": {
				"posts": {"type": "hasMany", "table": "posts"}
			}
		}`)

		e, err := ParseEntity("users", data, "entities/users.json")
		require.NoError(t, err)

		assert.Equal(t, "users", e.Name)
		assert.Equal(t, "users", e.TableName)
		assert.Equal(t, "Users", e.DisplayName)
		assert.True(t, e.GenerateForm)
		assert.Len(t, e.Columns, 3)
		assert.True(t, e.Columns["id"].PrimaryKey)
		assert.Equal(t, "posts", e.Relationships["posts"].Table)
		assert.Equal(t, "entities/users.json", e.Source())

		doc := e.Doc()
		assert.Equal(t, "Users", doc["displayName"])
		assert.Contains(t, doc, "columns")
	})

	t.Run("table name defaults to file stem", func(t *testing.T) {
		e, err := ParseEntity("posts", []byte(`{"columns":{}}`), "entities/posts.json")
		require.NoError(t, err)

		assert.Equal(t, "posts", e.TableName)
	})

	t.Run("rejects malformed documents", func(t *testing.T) {
		_, err := ParseEntity("users", []byte(`{"columns": [`), "entities/users.json")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), `entity "users"`)
	})
}

func TestEntityPrimaryKey(t *testing.T) {
	t.Run("returns the marked column", func(t *testing.T) {
		e := &Entity{Columns: map[string]*Column{
			"id":    {Type: "uuid", PrimaryKey: true},
			"email": {Type: "string"},
		}}

		assert.Equal(t, "id", e.PrimaryKey())
	})

	t.Run("empty when none is marked", func(t *testing.T) {
		e := &Entity{Columns: map[string]*Column{"email": {Type: "string"}}}

		assert.Empty(t, e.PrimaryKey())
	})
}

func TestParseEnum(t *testing.T) {
	data := []byte(`{
		"description": "Account status",
		"values": {
			"ACTIVE": {"label": "Active", "color": "green"},
			"SUSPENDED": {"label": "Suspended"},
			"DELETED": {"label": "Deleted", "icon": "trash"}
		}
	}`)

	e, err := ParseEnum("status", data, "enums/status.json")
	require.NoError(t, err)

	assert.Equal(t, "status", e.Name)
	assert.Equal(t, "Account status", e.Description)
	assert.Len(t, e.Values, 3)
	assert.Equal(t, "green", e.Values["ACTIVE"].Color)
}

func TestParsePage(t *testing.T) {
	data := []byte(`{
		"route": "/",
		"title": "Home",
		"sections": [
			{"type": "hero", "title": "Welcome"},
			{"type": "table", "entity": "users"},
			{"type": "content", "body": "About us"}
		]
	}`)

	p, err := ParsePage("home", data, "pages/home.json")
	require.NoError(t, err)

	assert.Equal(t, "/", p.Route)
	require.Len(t, p.Sections, 3)
	assert.Equal(t, SectionHero, p.Sections[0].Type)
	assert.Equal(t, "users", p.Sections[1].Entity)
	assert.Equal(t, "About us", p.Sections[2].Body)
}

func TestParseApp(t *testing.T) {
	data := []byte(`{"name": "crm", "description": "A CRM", "url": "https://crm.example.com"}`)

	a, err := ParseApp(data, "app.json")
	require.NoError(t, err)

	assert.Equal(t, "crm", a.Name)
	assert.Equal(t, "app.json", a.Source())
}

func TestSet(t *testing.T) {
	t.Run("counts and lookups", func(t *testing.T) {
		set := NewSet()
		set.Entities["users"] = &Entity{Name: "users"}
		set.Enums["status"] = &Enum{Name: "status"}
		set.Pages["home"] = &Page{Name: "home"}
		set.App = &App{Name: "crm"}

		entities, enums, pages := set.Counts()
		assert.Equal(t, 1, entities)
		assert.Equal(t, 1, enums)
		assert.Equal(t, 1, pages)
		assert.NotNil(t, set.Entity("users"))
		assert.Nil(t, set.Entity("posts"))
	})

	t.Run("emptiness per kind", func(t *testing.T) {
		set := NewSet()
		set.Pages["home"] = &Page{Name: "home"}

		assert.True(t, set.Empty(KindEntity))
		assert.True(t, set.Empty(KindEnum))
		assert.False(t, set.Empty(KindPage))
		assert.True(t, set.Empty(KindApp))
	})
}

func TestSourcePath(t *testing.T) {
	assert.Equal(t, "entities/users.json", SourcePath(KindEntity, "users"))
	assert.Equal(t, "enums/status.json", SourcePath(KindEnum, "status"))
	assert.Equal(t, "pages/home.json", SourcePath(KindPage, "home"))
	assert.Equal(t, "app.json", SourcePath(KindApp, "crm"))
}

func TestKind(t *testing.T) {
	assert.True(t, KindEntity.Valid())
	assert.False(t, Kind("widget").Valid())
	assert.Equal(t, "enum", KindEnum.String())
}
