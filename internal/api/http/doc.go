/*
Package http exposes the repository over HTTP using gin.

All resource routes live under /api/repo/v1 followed by the repository
path. The verb and query parameters select the operation:

	GET    <path>                 snapshot of the resource
	GET    <path>?list            children (&hidden, &glob=<pattern>)
	GET    <path>?content         file content as an attachment
	PUT    <path>?folder          create directories
	PUT    <path>?file            create an empty file
	PUT    <path>                 replace the content with the request body
	PUT    <path>?zip[=<target>]  archive the resource
	PUT    <path>?unzip[=<dir>]   extract the archive
	POST   <path>?copy=<target>   copy
	POST   <path>?move=<target>   move
	DELETE <path>                 delete, answering true or false

Errors are JSON objects with an "error" field. Missing or unreadable
resources answer 404, wrong resource types 400 and everything else 500.
*/
package http
