// Package notifelect elects a single leader among peer processes that share
// a PostgreSQL database, using the database both as the tiebreak oracle (a
// monotonic sequence) and as the transport (NOTIFY/LISTEN on a shared
// channel). No additional coordination service is required.
//
// ════════════════════════════════════════════════════════════════
// Election algorithm
// ════════════════════════════════════════════════════════════════
//
// Every peer obtains a unique Sequence once, at startup, from a
// database-managed counter. Sequences are totally ordered and unique by
// construction, so the peer with the numerically highest Sequence among the
// currently live peers is always the rightful winner — this is the bully
// algorithm (https://www.cs.colostate.edu/~cs551/CourseNotes/Synchronization/BullyExample.html)
// specialized to a database-ordered peer set.
//
// Each Coordinator runs a periodic round: publish a Ping carrying its own
// Sequence, collect Pong replies for a bounded window, then set Outcome.Winner
// to true iff the highest Sequence carried by those Pongs is its own and no
// other sender's Pong carried that same Sequence; a round with no Pongs at
// all yields false. A peer replies
// Pong to any Ping whose Sequence it dominates (local >= incoming, local > 0)
// — including its own Ping, which is what lets a lone peer elect itself.
//
// A terminal Ping carrying Sequence 0 (the "yield probe") is published when a
// Coordinator shuts down, soliciting Pongs from every remaining peer so they
// reconverge before the next scheduled round.
package notifelect
