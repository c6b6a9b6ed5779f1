package common

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
)

// only one instance of the lifecycleMgr can exist
var lcm = func() (lcmgr *lifecycleMgr) {
	lcmgr = &lifecycleMgr{
		msgQueue:      make(chan outputMessage, 1000),
		progressCache: "",
		cancelChannel: make(chan os.Signal, 1),
		outputFormat:  EOutputFormat.Text(), // output text by default
	}

	// kick off the single routine that processes output
	go lcmgr.processOutputMessage()

	// interrupts are translated into a fatal error; allocations that were
	// already handed to the cluster keep running there
	signal.Notify(lcmgr.cancelChannel, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-lcmgr.cancelChannel
		lcmgr.Error("submission interrupted by user; batches already given to the cluster continue to run")
	}()

	return
}()

// create a public interface so that consumers outside of this package can refer to the lifecycle manager
// but they would not be able to instantiate one
type LifecycleMgr interface {
	Init(OutputBuilder)                                // let the user know the work has started and initial information like log location
	Progress(OutputBuilder)                            // print on the same line over and over again, not allowed to float up
	Exit(OutputBuilder, ExitCode)                      // indicates successful execution exit after printing, allow user to specify exit code
	Info(string)                                       // simple print, allowed to float up
	Warn(string)                                       // simple print, allowed to float up
	Error(string)                                      // indicates fatal error, exit right after
	SurrenderControl()                                 // give up control, this should never return
	RegisterCloseFunc(func())                          // run the given func before the process exits
	SetOutputFormat(OutputFormat)                      // change the output format of the entire application
	SetOutputVerbosity(OutputVerbosity)                // change the output verbosity of the entire application
	GetEnvironmentVariable(EnvironmentVariable) string // get the environment variable or its default value
	ClearEnvironmentVariable(EnvironmentVariable)      // clears the environment variable
}

func GetLifecycleMgr() LifecycleMgr {
	return lcm
}

// single point of control for all outputs
type lifecycleMgr struct {
	msgQueue        chan outputMessage
	progressCache   string // useful for keeping job progress on the last line
	cancelChannel   chan os.Signal
	outputFormat    OutputFormat
	outputVerbosity OutputVerbosity
	closeFuncLock   sync.Mutex
	closeFuncs      []func()
}

func (lcm *lifecycleMgr) SetOutputFormat(format OutputFormat) {
	lcm.outputFormat = format
}

func (lcm *lifecycleMgr) SetOutputVerbosity(mode OutputVerbosity) {
	lcm.outputVerbosity = mode
}

func (lcm *lifecycleMgr) RegisterCloseFunc(closeFunc func()) {
	lcm.closeFuncLock.Lock()
	defer lcm.closeFuncLock.Unlock()
	lcm.closeFuncs = append(lcm.closeFuncs, closeFunc)
}

func (lcm *lifecycleMgr) GetEnvironmentVariable(env EnvironmentVariable) string {
	value := os.Getenv(env.Name)
	if value == "" {
		return env.DefaultValue
	}
	return value
}

func (lcm *lifecycleMgr) ClearEnvironmentVariable(variable EnvironmentVariable) {
	// We must've been given a variable if we're clearing it
	PanicIfErr(os.Setenv(variable.Name, ""))
}

func (lcm *lifecycleMgr) Init(o OutputBuilder) {
	if lcm.outputVerbosity == EOutputVerbosity.Quiet() {
		return
	}
	lcm.msgQueue <- outputMessage{
		msgContent: o(lcm.outputFormat),
		msgType:    eOutputMessageType.Init(),
	}
}

func (lcm *lifecycleMgr) Progress(o OutputBuilder) {
	if lcm.outputVerbosity == EOutputVerbosity.Quiet() ||
		lcm.outputVerbosity == EOutputVerbosity.Essential() {
		return
	}

	messageContent := ""
	if o != nil {
		messageContent = o(lcm.outputFormat)
	}
	lcm.msgQueue <- outputMessage{
		msgContent: messageContent,
		msgType:    eOutputMessageType.Progress(),
	}
}

func (lcm *lifecycleMgr) Info(msg string) {
	LogToJobLogWithPrefix(msg, ELogLevel.Info())

	if lcm.outputVerbosity == EOutputVerbosity.Quiet() ||
		lcm.outputVerbosity == EOutputVerbosity.Essential() {
		return
	}
	lcm.msgQueue <- outputMessage{
		msgContent: msg,
		msgType:    eOutputMessageType.Info(),
	}
}

func (lcm *lifecycleMgr) Warn(msg string) {
	LogToJobLogWithPrefix(msg, ELogLevel.Warning())

	if lcm.outputVerbosity == EOutputVerbosity.Quiet() {
		return
	}
	lcm.msgQueue <- outputMessage{
		msgContent: msg,
		msgType:    eOutputMessageType.Warn(),
	}
}

func (lcm *lifecycleMgr) Error(msg string) {
	LogToJobLogWithPrefix(msg, ELogLevel.Error())

	lcm.msgQueue <- outputMessage{
		msgContent: msg,
		msgType:    eOutputMessageType.Error(),
		exitCode:   EExitCode.Error(),
	}

	// stall forever until the message is printed and the program exits
	lcm.SurrenderControl()
}

func (lcm *lifecycleMgr) Exit(o OutputBuilder, applicationExitCode ExitCode) {
	messageContent := ""
	if o != nil {
		messageContent = o(lcm.outputFormat)
	}

	lcm.msgQueue <- outputMessage{
		msgContent: messageContent,
		msgType:    eOutputMessageType.EndOfJob(),
		exitCode:   applicationExitCode,
	}

	if applicationExitCode != EExitCode.NoExit() {
		// stall forever until the message is printed and the program exits
		lcm.SurrenderControl()
	}
}

// this would be used when a customer is eager to persist the job and prefer to not continue
// waiting for the work to finish
func (lcm *lifecycleMgr) SurrenderControl() {
	// stall forever
	select {}
}

func (lcm *lifecycleMgr) processOutputMessage() {
	// this function constantly pulls out messages and passes them onto the
	// right handler based on the output format
	for {
		switch msg := <-lcm.msgQueue; lcm.outputFormat {
		case EOutputFormat.Json():
			lcm.processJSONOutput(msg)
		case EOutputFormat.Text():
			lcm.processTextOutput(msg)
		case EOutputFormat.None():
			lcm.processNoneOutput(msg)
		default:
			panic("unimplemented output format")
		}
	}
}

func (lcm *lifecycleMgr) processNoneOutput(msg outputMessage) {
	if msg.msgType == eOutputMessageType.Error() {
		lcm.closeAndExit(EExitCode.Error())
	} else if msg.shouldExitProcess() {
		lcm.closeAndExit(msg.exitCode)
	}

	// ignore all other outputs
}

func (lcm *lifecycleMgr) processJSONOutput(msg outputMessage) {
	// simply output the json message, we assume the msgContent is already formatted correctly
	fmt.Println(GetJsonStringFromTemplate(newJsonOutputTemplate(msg.msgType, msg.msgContent)))

	// exit if needed
	if msg.shouldExitProcess() {
		lcm.closeAndExit(msg.exitCode)
	}
}

func (lcm *lifecycleMgr) processTextOutput(msg outputMessage) {
	// when a new line needs to overwrite the current line completely
	// we need to make sure that if the new line is shorter, we properly erase everything from the current line
	matchLengthWithSpaces := func(curLineLength, newLineLength int) {
		if dirtyLeftover := curLineLength - newLineLength; dirtyLeftover > 0 {
			fmt.Print(strings.Repeat(" ", dirtyLeftover))
		}
	}

	switch msg.msgType {
	case eOutputMessageType.Error(), eOutputMessageType.EndOfJob():
		// simply print and quit
		if msg.msgContent != "" {
			fmt.Println("\n" + msg.msgContent)
		}
		if msg.shouldExitProcess() {
			lcm.closeAndExit(msg.exitCode)
		}

	case eOutputMessageType.Progress():
		fmt.Print("\r")

		// print the current status
		fmt.Print(msg.msgContent)

		// it is possible that the new progress status is somehow shorter than the previous one
		// in this case we must erase the left over characters from the previous progress
		matchLengthWithSpaces(len(lcm.progressCache), len(msg.msgContent))

		lcm.progressCache = msg.msgContent

	default:
		if lcm.progressCache != "" { // a progress status is already on the last line
			// print the info from the beginning on current line
			fmt.Print("\r")
			fmt.Print(msg.msgContent)

			// it is possible that the info is shorter than the progress status
			// in this case we must erase the left over characters from the progress status
			matchLengthWithSpaces(len(lcm.progressCache), len(msg.msgContent))

			// print the previous progress status again, so that it's on the last line
			fmt.Print("\n")
			fmt.Print(lcm.progressCache)
		} else {
			fmt.Println(msg.msgContent)
		}
	}
}

// closeAndExit flushes whatever the application registered for teardown, then exits the process.
func (lcm *lifecycleMgr) closeAndExit(exitCode ExitCode) {
	lcm.closeFuncLock.Lock()
	closeFuncs := lcm.closeFuncs
	lcm.closeFuncs = nil
	lcm.closeFuncLock.Unlock()

	for _, closeFunc := range closeFuncs {
		closeFunc()
	}
	os.Exit(int(exitCode))
}

// captures the common logic of exiting if there's an expected error
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}
