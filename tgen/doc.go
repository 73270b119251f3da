// Package tgen is a small scripting engine for paced message-send
// workloads, used to build traffic generators and load-test drivers.
//
// A script is a list of steps, one per line or separated by ';':
//
//	sendt <n><bytes|kbytes|mbytes> <n><persec|kpersec|mpersec> <n><usec|msec|sec>
//	sendc <n><bytes|kbytes|mbytes> <n><persec|kpersec|mpersec> <n><msgs|kmsgs|mmsgs>
//	set <a-z> <n>
//	label <a-z>
//	loop <label a-z> <variable a-z>
//	delay <n><usec|msec|sec>
//	stop
//	repl
//	# comment
//
// sendt sends messages of the given size at the given rate for a duration;
// sendc sends a fixed number of messages at the given rate. Both use the
// catch-up pacer from package rate. loop decrements a variable and jumps
// back to a label while the variable stays positive. repl reads further
// steps from Config.Input and runs each as it arrives.
//
// # Quick Start
//
//	g := tgen.New(tgen.Config{
//	    Host: tgen.HostFuncs{
//	        SendFunc: func(g *tgen.Generator, length int) {
//	            conn.Write(buf[:length])
//	        },
//	    },
//	})
//	defer g.Close()
//
//	err := g.AddMultiSteps("set a 3; label x; sendc 1200 bytes 10 kpersec 5 kmsgs; delay 100 msec; loop x a")
//	if err != nil {
//	    return err // *tgen.ParseError
//	}
//	if err := g.Run(ctx); err != nil {
//	    return err // e.g. *tgen.UnknownLabelError
//	}
//
// # Errors
//
// Lines that do not compile return a *ParseError wrapping one of the Err*
// sentinels; IsConfigurationError separates bad units and identifiers from
// bad syntax. A loop that names an undeclared label fails with
// *UnknownLabelError only when it executes, since labels may be declared
// later in the script.
package tgen
