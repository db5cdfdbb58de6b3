package storage

// ConfigJSONSchema documents the shape accepted by ValidateConfigJSON.
// Driver specific settings go in "options".
const ConfigJSONSchema = `
{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "StorageConfig",
  "type": "object",
  "required": ["driver", "dsn"],
  "properties": {
    "name": {
      "type": "string",
      "description": "Human readable identifier for the storage configuration"
    },
    "driver": {
      "type": "string",
      "enum": ["sqlite3", "postgres"]
    },
    "dsn": {
      "type": "string",
      "minLength": 1,
      "description": "Connection string passed to database/sql"
    },
    "readOnly": {
      "type": "boolean",
      "default": false
    },
    "options": {
      "type": "object",
      "additionalProperties": true
    }
  },
  "additionalProperties": false
}
`
