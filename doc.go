/*
Package esl is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.

Package esl implements a client for the FreeSWITCH Event Socket Library
(ESL): a bidirectional, line-oriented control protocol over TCP used to
drive a running FreeSWITCH softswitch.

The package is built around two layers. EventSocket is the low-level
connection: it frames the wire protocol, correlates commands to their
replies, and broadcasts the event stream to subscribers. Channel is a
higher-level view of one live call, built on top of an EventSocket: it
reconstructs call state from the event stream and exposes call-control
operations (play, read digits, attended transfer, hang up). Channel
reports whether the call is bridged but has no operation that bridges
calls.
*/
package esl
