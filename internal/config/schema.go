package config

// projectsSchema is the JSON schema for projects.yaml. Kept permissive on
// purpose: structural mistakes (wrong types, missing repo) fail fast while
// unknown keys pass through so configs stay forward compatible.
const projectsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "settings": {
      "type": ["object", "null"],
      "properties": {
        "name": {"type": "string"},
        "baseurl": {"type": "string"},
        "description": {"type": "string"},
        "architectures": {
          "type": "array",
          "items": {"type": "string"}
        },
        "sign_packages": {"type": "boolean"}
      }
    },
    "projects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["repo"],
        "properties": {
          "repo": {"type": "string", "pattern": "^[^/]+/[^/]+$"},
          "name": {"type": "string"},
          "description": {"type": "string"},
          "keep_versions": {"type": "integer", "minimum": 0},
          "asset_pattern": {"type": "string"}
        }
      }
    }
  },
  "required": ["projects"]
}`
