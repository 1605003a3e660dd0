/*
results.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import "strings"

// CommandReply is the synchronous reply to send_command/subscribe_events/
// filter/execute_app(async), per spec.md section 3.
type CommandReply struct {
	Success   bool
	ReplyText string
	Headers   map[string]string
}

func newCommandReply(f *Frame) *CommandReply {
	return &CommandReply{
		Success:   f.ReplyOK(),
		ReplyText: f.ReplyText(),
		Headers:   f.Headers.Map(),
	}
}

// Header returns a reply header value, e.g. Job-UUID or Event-UUID.
func (r *CommandReply) Header(name string) string { return r.Headers[name] }

// ApiResponse is the synchronous reply to send_api, per spec.md section 3.
type ApiResponse struct {
	BodyText string
	Success  bool
}

func newAPIResponse(f *Frame) *ApiResponse {
	body := string(f.Body)
	return &ApiResponse{
		BodyText: body,
		Success:  !hasAnyPrefix(strings.TrimSpace(body), "-ERR", "-USAGE"),
	}
}

// BackgroundJobResult is delivered asynchronously when the BACKGROUND_JOB
// event matching a bg_api call's Job-UUID arrives, per spec.md section 3.
type BackgroundJobResult struct {
	JobUUID  string
	Success  bool
	BodyText string
}
