package db

import _ "embed"

// Schema 引擎读写的全部表结构，recurctl db migrate 会执行它
//
//go:embed schema.sql
var Schema string
