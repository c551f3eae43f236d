package forms

const bookSchemaJSON = `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "minLength": 1, "maxLength": 255},
    "author": {"type": "string", "minLength": 1, "maxLength": 255},
    "publicationDate": {"type": "string", "minLength": 1, "format": "date"},
    "isbn": {"type": "string", "pattern": "^$|^[0-9Xx-]{10,17}$"}
  },
  "required": ["title", "author", "publicationDate"]
}`

const readerSchemaJSON = `{
  "type": "object",
  "properties": {
    "firstName": {"type": "string", "minLength": 1, "maxLength": 100},
    "lastName": {"type": "string", "minLength": 1, "maxLength": 100},
    "email": {"type": "string", "minLength": 1, "format": "email"},
    "phoneNumber": {"type": "string", "minLength": 1, "pattern": "^\\+?[0-9 ()-]{6,20}$"}
  },
  "required": ["firstName", "lastName", "email", "phoneNumber"]
}`

const borrowSchemaJSON = `{
  "type": "object",
  "properties": {
    "bookId": {"type": "string", "minLength": 1, "pattern": "^[0-9]+$"},
    "dueDate": {"type": "string", "minLength": 1, "format": "date"}
  },
  "required": ["bookId", "dueDate"]
}`

const prolongSchemaJSON = `{
  "type": "object",
  "properties": {
    "dueDate": {"type": "string", "minLength": 1, "format": "date"}
  },
  "required": ["dueDate"]
}`

const loginSchemaJSON = `{
  "type": "object",
  "properties": {
    "email": {"type": "string", "minLength": 1, "format": "email"},
    "password": {"type": "string", "minLength": 1}
  },
  "required": ["email", "password"]
}`
