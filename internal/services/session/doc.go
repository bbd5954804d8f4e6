// Package session is the Session Manager. It creates, joins and terminates
// chat sessions and wires the crypto engine to outbound sends, history
// loads and the realtime subscription.
//
// Each joined session is an explicit *Session value carrying its own key,
// device identity and backend handles; the package keeps no global state,
// so one process may hold many sessions at once.
//
// States per device:
//
//	Uninitialized -> Joining -> Active -> Terminating -> Terminated
//	                    \
//	                     -> Invalid
package session
