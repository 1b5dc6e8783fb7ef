package repository

import "errors"

// 行が無いことを表す（gormのErrRecordNotFoundは外に出さない）
var ErrNotFound = errors.New("not found")

// 一意制約違反
var ErrConflict = errors.New("conflict")
