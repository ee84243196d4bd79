// Package tasks mounts the task-records search endpoint:
//
//	GET /?page=&uuid=&file_name=&status=&user=&campaign=&search=
//
// It answers {"tasks", "hasMore", "total"} and reports failures as
// {"message"}: 400 for a malformed page, 500 when the upstream dataset
// cannot be fetched.
package tasks
