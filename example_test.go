package coroutines_test

import (
	"fmt"

	coroutines "github.com/spirekit/go-coroutines"
)

func Example() {
	coroutines.InitRuntime(2)
	defer coroutines.ShutdownRuntime()

	owner := coroutines.NewOwner("npc")
	handle, _ := owner.StartCoroutine(func(flow *coroutines.Flow) any {
		fmt.Println("say hello")
		flow.Yield(coroutines.Seconds(2.0))
		fmt.Println("wave goodbye")
		return "done"
	})

	// The host loop drives everything; two 1-second frames cover the wait.
	coroutines.OnVariableTick(1.0)
	coroutines.OnVariableTick(1.0)

	result, _ := handle.Result()
	fmt.Println(result)
	// Output:
	// say hello
	// wave goodbye
	// done
}
